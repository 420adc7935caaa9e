// Package catalog loads the YAML database descriptor file and resolves the
// ${VAR} placeholders in connection parameters.
//
//	databases:
//	  redis:
//	    category: key-value
//	    driver: redis
//	    default_port: 6379
//	    connection_params:
//	      host: ${REDIS_HOST:-localhost}
//	      port: ${REDIS_PORT:-}
//	      password: ${keyring:redb-connect/redis}
//
// ${VAR:-default} falls back when VAR is unset or empty; $${ writes a literal ${.
// Which names are readable is decided by the Lookup passed to Resolve, so the
// keyring package can serve secrets next to the environment.
package catalog
