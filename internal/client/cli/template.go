package cli

const statusTemplate = `=== Session Status ===

Status:        Authenticated
{{- if .DisplayName }}
User:          {{.DisplayName}}
{{- end}}
Realm:         {{.Realm}}
{{- if .HasExpiry }}
Token expires: {{.ExpiresAt}}
{{- if .Expired }}
⚠️  Access token has expired, it will be renewed on the next request.
{{- else }}
Time remaining: {{.Remaining}}
{{- end}}
{{- end}}
Refresh token: {{if .HasRefresh}}present{{else}}missing{{end}}
{{- if .LastActivity }}
Last activity: {{.LastActivity}}
{{- end}}
{{- if .IdleLeft }}
Idle logout in: {{.IdleLeft}}
{{- end}}
`

const listFooterTemplate = `
Page {{.Page}} · showing {{len .Items}} of {{.Total}}{{if gt .Limit 0}} · {{.Limit}} per page{{end}}
`
