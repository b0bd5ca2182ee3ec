// Package main provides the entry point for the docharvest CLI.
//
// Docharvest is an autonomous document harvester. Starting from a single
// URL, it crawls a site with a headless browser, asks an external decision
// service which page elements to interact with, and downloads every
// document it uncovers along the way.
//
// Usage:
//
//	docharvest crawl --oracle-url <endpoint> <start-url>
//
// See --help for all available options.
package main

// main is the entry point for docharvest.
func main() {
	Execute()
}
