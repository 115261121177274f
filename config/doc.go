// Package config loads kfin configuration.
//
// Layers, lowest to highest precedence:
//
//  1. Built-in defaults (Default).
//  2. An optional YAML file: the path given to Load, else $KFIN_CONFIG, else
//     <home>/config.yaml when it exists.
//  3. Environment variables prefixed KFIN_. A double underscore separates
//     sections: KFIN_CACHE__PATH sets cache.path and
//     KFIN_TELEMETRY__LOGGING__LEVEL sets telemetry.logging.level.
//
// Paths left empty are derived from Home after loading.
package config
