// Package plot renders diagnostic charts of a tracking set.
//
// Responsibilities: static PNG charts of marker paths, the solved camera
// path and the stabilization curves, and an HTML page charting dopesheet
// coverage.
//
// Key types: none; the package exposes builder functions over
// gonum/plot and go-echarts.
//
// Dependency rule: plot reads registry, dopesheet and stabilize and never
// mutates the set beyond what stabilize.Data caches.
package plot
