/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// newLogger writes to w with the server's timestamp format. Debug output
// is only shown with --verbose.
func newLogger(cfg *Config, w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logDate,
	})

	if cfg.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	return logger
}

func (c *Config) logger() *log.Logger {
	c.logOnce.Do(func() {
		if c.log == nil {
			c.log = newLogger(c, os.Stderr)
		}
	})

	return c.log
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	cfg.logger().Debugf(format, args...)
}

// reportErr hands a write failure to the drain goroutine without blocking,
// dropping it once the server has stopped reading.
func reportErr(errs chan<- error, err error) {
	select {
	case errs <- err:
	default:
	}
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon())
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
