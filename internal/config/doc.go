// Package config loads editor configuration.
//
// Configuration is layered, higher layers overriding lower:
//
//  1. Built-in defaults (Default)
//  2. The config file, TOML or YAML by extension
//  3. RICHTEXT_* environment variables
//
// Maps merge key by key across layers. Lists, the plugin list included,
// are replaced whole, so a config file that names plugins names all of
// them in order. The core plugin is never listed; editors run it last.
package config
