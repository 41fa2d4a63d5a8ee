// Package config provides shared configuration structures loaded from
// environment variables via cleanenv tags.
package config
