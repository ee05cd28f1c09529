// Package compiler translates Tinka source into 2003lk assembly.
//
// Pipeline: source → Splitter (words) → Tokenize → Parse → checkCalls → Generate → 2003lk text
package compiler
