package config

// SampleConfig returns a fully commented configuration file
func SampleConfig() string {
	return `# DropPad configuration
# Environment variables prefixed with DROPPAD_ override these values,
# e.g. DROPPAD_SERVER_PORT=9090 or DROPPAD_ANALYSIS_REVEAL_DELAY=500ms
version: "1.0"

analysis:
  # Time between pressing analyze and the results appearing
  reveal_delay: 2s
  # Time the control shows "Analysis complete" before it can be used again
  reset_delay: 3s
  # Captions of the analyze control
  labels:
    idle: Analyze data
    busy: Processing...
    done: Analysis complete

ui:
  # default | high-contrast | minimal
  theme: default
  alt_screen: true
  # Mouse motion over the drop zone highlights it, a click opens the picker
  mouse: true
  # Directory the file picker opens in
  start_dir: .
  show_hidden: false
  # Write logs here while the UI owns the terminal (empty discards them)
  log_file: ""

inbox:
  # Treat files landing in dir as dropped onto the drop zone
  enabled: false
  dir: ~/DropPad
  # Files with these suffixes are still being written and only highlight the zone
  partial_suffixes:
    - .part
    - .crdownload
    - .tmp
    - .download
  # A new file counts as dropped once it has not changed for this long
  settle_delay: 500ms

server:
  host: 127.0.0.1
  port: 8080
  read_timeout: 15s
  # 0 keeps event streams open
  write_timeout: 0s
  idle_timeout: 60s
  session_ttl: 30m
  cleanup_interval: 1m
  max_sessions: 256
  # When set, /api/v1 requests must carry this value in the access-token header
  access_token: ""
  allow_origins:
    - "*"
  request_logging: true

output:
  # auto | always | never
  color_mode: auto
  verbose: false
  no_emoji: false
`
}

// MinimalSampleConfig returns a compact configuration with the common settings
func MinimalSampleConfig() string {
	return `version: "1.0"
analysis:
  reveal_delay: 2s
  reset_delay: 3s
ui:
  theme: default
server:
  port: 8080
`
}
