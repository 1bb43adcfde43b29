package models

// Config is the on-disk configuration for snowshift.
type Config struct {
	Snowflake Snowflake `yaml:"snowflake" mapstructure:"snowflake"`
	Migration Migration `yaml:"migration" mapstructure:"migration"`
}

// Snowflake holds connection settings for the account a command talks to.
type Snowflake struct {
	Account   string `yaml:"account" mapstructure:"account"`
	Username  string `yaml:"username" mapstructure:"username"`
	Password  string `yaml:"password,omitempty" mapstructure:"password"`
	Role      string `yaml:"role" mapstructure:"role"`
	Warehouse string `yaml:"warehouse" mapstructure:"warehouse"`
	Timeout   string `yaml:"timeout,omitempty" mapstructure:"timeout"` // per-statement timeout, e.g. "30s"
}

// Migration holds the settings shared by the migration commands.
type Migration struct {
	MergedDatabase     string   `yaml:"merged_database" mapstructure:"merged_database"`
	ShareName          string   `yaml:"share_name" mapstructure:"share_name"`
	DestinationAccount string   `yaml:"destination_account" mapstructure:"destination_account"`
	AdminRole          string   `yaml:"admin_role" mapstructure:"admin_role"`
	ReadonlyRole       string   `yaml:"readonly_role" mapstructure:"readonly_role"`
	MappingFile        string   `yaml:"mapping_file" mapstructure:"mapping_file"`
	ExcludeDatabases   []string `yaml:"exclude_databases" mapstructure:"exclude_databases"`
	Workers            int      `yaml:"workers" mapstructure:"workers"`
	SchemaWorkers      int      `yaml:"schema_workers" mapstructure:"schema_workers"`
	TableWorkers       int      `yaml:"table_workers" mapstructure:"table_workers"`
}

// Defaults used when the config file or environment leaves a value unset.
const (
	DefaultRole           = "ACCOUNTADMIN"
	DefaultWarehouse      = "WH_MIGRATION"
	DefaultMergedDatabase = "MERGED_DB"
	DefaultShareSuffix    = "_SHARE"
	DefaultMappingFile    = "mapping.jsonl"
	DefaultWorkers        = 8
	DefaultSchemaWorkers  = 2
	DefaultTableWorkers   = 4
)

// ApplyDefaults fills unset fields with the documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Snowflake.Role == "" {
		c.Snowflake.Role = DefaultRole
	}
	if c.Snowflake.Warehouse == "" {
		c.Snowflake.Warehouse = DefaultWarehouse
	}
	if c.Migration.MergedDatabase == "" {
		c.Migration.MergedDatabase = DefaultMergedDatabase
	}
	if c.Migration.ShareName == "" {
		c.Migration.ShareName = c.Migration.MergedDatabase + DefaultShareSuffix
	}
	if c.Migration.MappingFile == "" {
		c.Migration.MappingFile = DefaultMappingFile
	}
	if c.Migration.Workers <= 0 {
		c.Migration.Workers = DefaultWorkers
	}
	if c.Migration.SchemaWorkers <= 0 {
		c.Migration.SchemaWorkers = DefaultSchemaWorkers
	}
	if c.Migration.TableWorkers <= 0 {
		c.Migration.TableWorkers = DefaultTableWorkers
	}
}
