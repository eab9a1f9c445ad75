// Command radarloop builds looping radar animations from BOM loop pages and
// joins two products into one side-by-side or stacked animation.
//
// Subcommands:
//
//	build    fetch both products, build their animations and join them
//	join     join two existing animated GIFs
//	palette  print the palette of an indexed image and its legend indices
//	recolor  apply the configured palette rewrites to an animated GIF
//	check    probe the radar source for connectivity
package main
