// Package config provides configuration parsing for teamstore.
//
// Configuration is read from teamstore.json, then overridden by
// TEAMSTORE_* environment variables, then by command-line flags.
//
// # Configuration File Structure
//
//	{
//	  "storage": {
//	    "dsn": "sqlite:///var/lib/teamstore/state.db",
//	    "key": "selectedTeam",
//	    "prefix": "",
//	    "table": "teamstore_kv",
//	    "strict": false
//	  },
//	  "server": {
//	    "addr": "localhost:8090",
//	    "metrics": true,
//	    "tracing": false,
//	    "shutdownTimeout": "10s"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  }
//	}
//
// # Environment
//
// Every field can be overridden, for example TEAMSTORE_STORAGE_DSN,
// TEAMSTORE_SERVER_ADDR, TEAMSTORE_SERVER_SHUTDOWN_TIMEOUT or
// TEAMSTORE_LOG_LEVEL.
//
// # Usage
//
//	cfg, err := config.LoadOrDefault("teamstore.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.ApplyEnv(); err != nil {
//	    log.Fatal(err)
//	}
package config
