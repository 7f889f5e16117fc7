// Command hologram indexes photo folders from the command line.
//
// Usage:
//
//	hologram [global options] <command> FOLDER
//
// Commands:
//
//	scan    Index a folder and print a summary (--list, --json)
//	stats   Print photo, pair, camera and lens counts
//	filter  Print the photos matching --camera-make, --camera-model,
//	        --lens, --type, --iso, --focal, --aperture and --date
//	show    Print the EXIF metadata of a single file
//
// Ranges are written MIN:MAX and are inclusive. Dates are YYYY-MM-DD or
// RFC 3339; a plain end date covers the whole day.
//
// Global options:
//
//	--workers N          per-file worker count (0 sizes the pool from CPUs)
//	--skip-hidden        skip dot files and directories (default true)
//	--follow-symlinks    descend into symlinked directories (default true)
//	--thumbnails         generate thumbnails while scanning
//	--log-level LEVEL    debug, info, warn or error (env LOG_LEVEL)
//
// Scan progress is drawn on stderr when it is a terminal. Interrupting a
// scan cancels it and exits with status 130.
package main
