package help

const ColdstartYAML = `# docufind Quick Start

platforms:
  whatsapp: "web.whatsapp.com"
  telegram: "web.telegram.org"
  slack: "slack.com"
  teams: "teams.microsoft.com"
  discord: "discord.com"
  generic: "any other page, with --generic"

item_types:
  document: "pdf, doc(x), xls(x), ppt(x), txt, csv"
  image: "jpg, jpeg, png, gif, webp, svg, bmp"
  media: "mp4, webm, avi, mov, mp3, wav, ogg (listed under document)"
  link: "everything else, including URLs in message text"

commands:
  scan_saved_page: |
    docufind scan --file chat.html --host web.whatsapp.com

  scan_live_page: |
    docufind scan --url "https://example.com/blog" --generic

  filter_results: |
    docufind scan --file chat.html --host slack.com --type document --recent --search invoice

  table_output: |
    docufind scan --file chat.html --host discord.com --format table

  watch_for_changes: |
    docufind watch --file chat.html --host web.telegram.org --debounce 750ms
    docufind watch --url "https://web.whatsapp.com" --browser-url ws://127.0.0.1:9222

  summarize: |
    docufind summarize --href "https://example.com/report.pdf"
    docufind summarize --text "long message text to condense"
    docufind summarize --file chat.html --host slack.com --item 3-0 --item 5-link-0

  ocr: |
    docufind ocr --src screenshot.png

  run_backend: |
    GEMINI_API_KEY=... docufind serve
    docufind serve --env-file .env

settings:
  backendUrl: "Summarization backend (default http://localhost:8080)"
  geminiApiKey: "Stored for the backend, never sent by the CLI"
  ocrEnabled: "Allow docufind ocr (default true)"
  maxSummaryLength: "max_tokens sent to /analyze (default 400)"
  autoScan: "Rescan on page changes in docufind watch (default true)"
  showTimestamps: "Timestamp column in table output (default true)"
  groupByType: "Group table output by item type (default false)"

settings_commands:
  show: 'docufind settings show'
  set: 'docufind settings set backendUrl http://localhost:9000'
  reset: 'docufind settings reset'

cache_commands:
  get: 'docufind cache get --href "https://example.com/a.pdf"'
  stats: 'docufind cache stats'
  clear: 'docufind cache clear'

history_commands:
  list_scans: 'docufind db scans'
  show_scan: 'docufind db scan 5'
  query_today: 'docufind db query --today'
  query_failed: 'docufind db query --failed'
  query_platform: 'docufind db query --platform Slack'
  database: '$DOCUFIND_DB, else docufind/docufind.db in the user config directory'

invariants:
  - "Items are deduplicated by href, then src, then name"
  - "Scan output is ascending by timestamp; filtered output is newest first"
  - "Summaries are cached forever, keyed by href and the first 80 characters of text"
  - "A chat page whose message container is missing fails with 'could not find chat messages'"

error_behavior:
  - "Malformed URLs: fail fast before fetching"
  - "Backend and OCR failures: reported per item, other items continue"
  - "Exit codes: 0=success, 1=usage error, 2=startup failure"
`
