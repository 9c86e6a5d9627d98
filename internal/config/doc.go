// Package config loads the docbind YAML configuration.
//
//	database: docbind.db
//	catalog: models.yaml
//	max_depth: 2
//	include_related: true
//	extensions: [.docx]
//	log:
//	  level: info
//	  format: text
package config
