// Package templates renders the web screens as templ components.
package templates
