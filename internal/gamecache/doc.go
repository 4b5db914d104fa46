// Package gamecache implements the on-disk cache for game data: JSON
// snapshots (details, achievements, news) that expire by file modtime, and
// immutable media files (screenshots, video thumbnails, icons, news images)
// keyed by appid. JSON writes go through temp file + rename so readers never
// observe a partial snapshot. The package also carries the achievement
// merge, the parallel media fan-out and the news image extraction that feed
// those snapshots before they are persisted.
package gamecache
