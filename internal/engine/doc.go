// Package engine contains the driving loop: it loads one merger tree at a
// time, advances it snapshot by snapshot through the four-phase pipeline,
// and hands each finished snapshot population to the output collaborator.
package engine
