// Package config loads the YAML configuration of the mieled bridge.
//
// Values are applied in this order, later sources winning:
//  1. Defaults
//  2. The YAML file
//  3. MIELE_* environment variables
package config
