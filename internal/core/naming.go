package core

import (
	"fmt"
	"regexp"
)

const (
	ExtensionName = "mdx"
	DefaultRootID = "MDX_ROOT"
	GlobalName    = "Component"
	PropsVar      = "__MDX_PROPS__"
	LoaderFilter  = `\.mdx?$`
)

var DefaultExternal = []string{"react", "react-dom"}

var DefaultCDNScripts = []string{
	"https://unpkg.com/react@18/umd/react.production.min.js",
	"https://unpkg.com/react-dom@18/umd/react-dom.production.min.js",
}

var DefaultExcludedProps = []string{"collections"}

const DefaultPreamble = `import React from "react";
import { mdx } from "@mdx-js/react";
`

var rootIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

func ValidateRootID(id string) error {
	if !rootIDPattern.MatchString(id) {
		return fmt.Errorf("invalid root id %q: must match %s", id, rootIDPattern.String())
	}
	return nil
}
