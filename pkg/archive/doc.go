// Package archive writes one item into its own entry directory:
//
//	<root>/2020-01-01-00:00:00-42/
//	    tweet-42.json   canonical payload, rewritten on every archival
//	    abc.jpg         media named after the "/media/" URL suffix
//	    media_1.mp4     or media_N / extended_media_N plus the URL extension
package archive
