package models

import "github.com/paulmach/orb"

const CRS = "EPSG:4326"

type Park struct {
	Name       string
	Color      string      // stroke color on the map
	Polygon    orb.Polygon // lon/lat in CRS
	Properties map[string]string
}

type ParkSummary struct {
	Name   string
	Pixels int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	StdDev float64
}
