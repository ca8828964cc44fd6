// Package config loads the generator configuration from YAML.
//
// # Schema Overview
//
//	version: "1"
//	namespace: factories            # directive prefix, //factories:provider
//	patterns: ["./..."]             # go/packages patterns to scan
//	output: build/generated/resources
//	round_size: 8                   # packages per scanning round
//	workers: 4                      # concurrent package scans within a round
//	tests: false                    # also scan _test.go files
//	build_tags: [integration]
//	manifest: true                  # write META-INF/factories-deps.yaml
//	metrics_file: ""                # Prometheus textfile output
//	log:
//	  mode: development             # or production
//	  verbose: false
//	annotations:                    # annotation types living outside the scanned packages
//	  - name: example.com/boot.AutoConfiguration
//	    value: example.com/boot.AutoConfiguration
//	    aot: false
package config
