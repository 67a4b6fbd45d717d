// Package config provides configuration parsing for nestctl.
//
// The configuration is stored in nestctl.json. Every field is optional;
// missing fields take the defaults returned by New.
//
// # Configuration File Structure
//
//	{
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "metrics": {
//	    "namespace": "libfx",
//	    "subsystem": "nesting"
//	  },
//	  "tracing": {
//	    "tracerName": "libfx/nesting"
//	  },
//	  "serve": {
//	    "addr": ":8080",
//	    "writeTimeout": "5s"
//	  },
//	  "scenarios": {
//	    "dir": "scenarios",
//	    "s3": {
//	      "region": "us-east-1",
//	      "endpoint": "http://localhost:9000",
//	      "pathStyle": true
//	    }
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Log.NewLogger(os.Stderr)
package config
