// Package config loads the spanrender configuration.
//
// The configuration lives in spanrender.yaml (or .json, .toml) in the
// working directory. Every key can be overridden from the environment with
// the SPANRENDER_ prefix, dots becoming underscores, and from command line
// flags bound to the same viper instance.
//
// # Configuration File Structure
//
//	server:
//	  port: 8080
//	  streaming: true
//	  debug: false
//	  metrics_path: /metrics
//	  shutdown_timeout: 30s
//	render:
//	  max_concurrency: 16
//	  slot_prefix: async
//	log:
//	  level: info
//	  format: text
//	export:
//	  output: dist
//	  paths: ["/", "/about"]
//	  bucket: my-site      # publish to S3 instead of output
//	  region: eu-west-1
//
// # Usage
//
//	v := config.NewViper()
//	cfg, err := config.Load(v, ".", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(cfg.ServerConfig(logger))
package config
