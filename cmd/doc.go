// Package cmd provides the command-line interface for codeplay.
//
// # Available Commands
//
//   - serve: Start the playground server with a sandboxed live preview
//   - render: Print the preview document for a source file
//   - run: Execute a document's scripts headlessly and report the console
//   - templates: List or show the built-in starter templates
//   - export: Write the saved snippet or a template to a file
//   - version: Show version information
//
// # Command Examples
//
//	// Start the playground without opening a browser
//	codeplay serve --port 3000 --no-open
//
//	// Mirror a file on disk into the editor
//	codeplay serve --source ./scratch.jsx
//
//	// Render a stylesheet into its preview document
//	codeplay render styles.css
//
//	// List templates as YAML
//	codeplay templates --format yaml
//
// # Configuration
//
// Settings are read from .codeplay.yml (or the file named by --config or
// CODEPLAY_CONFIG_FILE) and CODEPLAY_<SECTION>_<KEY> environment variables.
// Flags override both.
package cmd
