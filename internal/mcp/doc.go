// Package mcp exposes sift's static review pipeline as Model Context
// Protocol tools served over stdio.
package mcp
