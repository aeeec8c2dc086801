package core

// SourceConfig describes where an audited dataset is loaded from.
type SourceConfig struct {
	// Type selects the source adapter ("duckdb", "postgres").
	Type string `koanf:"type" json:"type"`

	// Path is a CSV/Parquet file or a DuckDB database file.
	Path string `koanf:"path" json:"path,omitempty"`

	// Table reads a whole table instead of a file.
	Table string `koanf:"table" json:"table,omitempty"`

	// Query reads the result of an arbitrary SELECT.
	Query string `koanf:"query" json:"query,omitempty"`

	Host     string `koanf:"host" json:"host,omitempty"`
	Port     int    `koanf:"port" json:"port,omitempty"`
	Database string `koanf:"database" json:"database,omitempty"`
	User     string `koanf:"user" json:"-"`
	Password string `koanf:"password" json:"-"`

	// Options contains driver connection options (e.g. sslmode).
	Options map[string]string `koanf:"options" json:"-"`

	// Params contains adapter-specific settings decoded by the adapter.
	Params map[string]any `koanf:"params" json:"-"`
}

// Describe returns a short, credential-free label for the source.
func (c SourceConfig) Describe() string {
	switch {
	case c.Query != "":
		return c.Type + ":query"
	case c.Table != "" && c.Path != "":
		return c.Type + ":" + c.Path + "#" + c.Table
	case c.Table != "":
		return c.Type + ":" + c.Table
	case c.Path != "":
		return c.Type + ":" + c.Path
	default:
		return c.Type
	}
}
