package config

import (
	"fmt"
	"os"
)

const starterConfig = `# Site configuration for blogbuilder.
base_url = "http://localhost:1313"
title = "My Blog"
description = "Notes on software and other things"
default_language = "en"
taxonomies = ["tags"]

[author]
name = "Author"

[[menu]]
name = "Posts"
url = "/posts/"
weight = 1

[[menu]]
name = "Tags"
url = "/tags/"
weight = 2

[output]
directory = "public"
clean = true

[serve]
port = 1313
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	if err := os.WriteFile(configPath, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
