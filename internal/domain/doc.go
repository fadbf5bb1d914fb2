// Package domain contains the core concepts of the report service: the
// submitted report fields, font selection and the fixed page geometry.
// Keep this package free of transport (HTTP) and infrastructure (Chrome) concerns.
package domain
