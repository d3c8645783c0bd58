// Package media downloads the images and videos attached to archived items.
//
// Deduplication is purely by derived filename within an entry directory, so
// an attachment listed under both entities and extended_entities is fetched
// once, and re-archiving an item never downloads a file that is already
// present.
package media
