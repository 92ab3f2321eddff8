// Package market defines the exchanges and counter currencies the data
// sources know about, together with their stable integer codes.
package market
