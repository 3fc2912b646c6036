// Package icon finds, ranks, and saves a site's best icon.
//
// Discovery turns a parsed page into an ordered list of candidate URLs.
// Resolution walks that list one candidate at a time, in order: a HEAD probe
// must answer 200, then the image is downloaded and its pixel size decoded.
// The candidate with the strictly largest area wins, so among equally sized
// icons the first discovered is kept. The winner's bytes are then written to
// the static site's icons directory by a Store.
package icon
