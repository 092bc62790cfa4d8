// Package record holds the position and trade models, their JSON codec and
// the mutator that derives live updates from previously delivered records.
package record
