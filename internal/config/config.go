// Package config defines batch configuration structures and loading hooks.
//
// Conventions:
// - Typed sections instead of ini prefix-scanning; missing required keys fail Load.
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Database points at one SQL database.
type Database struct {
	// Driver is the database/sql driver name. Only "sqlite3" is wired.
	Driver string `koanf:"driver"`

	// DSN is the driver-specific data source name (a file path for sqlite3).
	DSN string `koanf:"dsn"`
}

// Tables names the warehouse tables. All names must pass the identifier
// allow-list before they are interpolated into SQL.
type Tables struct {
	// StagingReport holds the spreadsheet feed batch; truncated each run.
	StagingReport string `koanf:"staging_report"`

	// StagingCompletions holds the completion feed batch; truncated each run.
	StagingCompletions string `koanf:"staging_completions"`

	// Ledger is the append-only master completions table.
	Ledger string `koanf:"ledger"`
}

// Roster describes the employee directory used for identity resolution.
type Roster struct {
	Table       string `koanf:"table"`
	IDColumn    string `koanf:"id_column"`
	EmailColumn string `koanf:"email_column"`
}

// Feed formats.
const (
	FormatDelimited = "delimited"
	FormatWorkbook  = "workbook"
)

// Source describes one input feed and its column mapping. Adding a feed is a
// configuration change, not a code change.
type Source struct {
	// Name identifies the feed in logs and metrics.
	Name string `koanf:"name"`

	// Format is "delimited" or "workbook".
	Format string `koanf:"format"`

	// Path is the remote feed path (local when transfer is skipped).
	Path string `koanf:"path"`

	// Delimiter for delimited feeds; single character.
	Delimiter string `koanf:"delimiter"`

	// StatusColumn, when non-empty, keeps only rows whose status equals
	// CompletedCode.
	StatusColumn  string `koanf:"status_column"`
	CompletedCode string `koanf:"completed_code"`

	// ActivityColumns are candidate column names for the activity code; the
	// first present column wins. At least one must be configured.
	ActivityColumns []string `koanf:"activity_columns"`

	// DateColumns are candidate column names for the completion date.
	DateColumns []string `koanf:"date_columns"`

	// ScoreColumn is optional; missing values default to 0.
	ScoreColumn string `koanf:"score_column"`

	// EmailColumns are candidate email columns (lower-cased, trimmed,
	// "BLANK" when empty).
	EmailColumns []string `koanf:"email_columns"`

	// RawIdentityColumn, when present in the feed, is used verbatim and
	// resolved against the roster later.
	RawIdentityColumn string `koanf:"raw_identity_column"`

	// EmployeeIDColumn is coerced to an integer; rows that fail are dropped.
	EmployeeIDColumn string `koanf:"employee_id_column"`

	// RecencyDays drops rows older than this many days; 0 disables.
	RecencyDays int `koanf:"recency_days"`
}

// SFTP describes one file-transfer endpoint.
type SFTP struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	KeyPath  string `koanf:"key_path"`

	// UploadDir is the remote directory for produced files, when this
	// endpoint receives the output.
	UploadDir string `koanf:"upload_dir"`
}

// SMTP describes the notification transport.
type SMTP struct {
	Host string   `koanf:"host"`
	Port int      `koanf:"port"`
	From string   `koanf:"from"`
	To   []string `koanf:"to"`
}

// Output names the produced files.
type Output struct {
	CSVName   string `koanf:"csv_name"`
	TmpName   string `koanf:"tmp_name"`
	TxtName   string `koanf:"txt_name"`
	Delimiter string `koanf:"delimiter"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogDir receives the per-run log file.
	LogDir string `koanf:"log_dir"`

	// TempDir is the per-run scratch directory; cleared after each run.
	TempDir string `koanf:"temp_dir"`

	// ArchiveDir receives timestamped copies of run artifacts.
	ArchiveDir string `koanf:"archive_dir"`

	// SkipTransfer runs against already-local feed paths without SFTP.
	SkipTransfer bool `koanf:"skip_transfer"`

	// SkipNotify suppresses the SMTP notification.
	SkipNotify bool `koanf:"skip_notify"`

	Warehouse Database `koanf:"warehouse"`
	Directory Database `koanf:"directory"`

	Tables Tables `koanf:"tables"`
	Roster Roster `koanf:"roster"`

	// Report is the spreadsheet feed; Completions is the delimited feed
	// that drives the LMS output.
	Report      Source `koanf:"report"`
	Completions Source `koanf:"completions"`

	// ActiveActivities is the allow-list of in-scope activity codes.
	ActiveActivities []string `koanf:"active_activities"`

	// ReportSFTP serves the spreadsheet feed; LMSSFTP serves the completion
	// feed and receives the upload.
	ReportSFTP SFTP `koanf:"sftp_report"`
	LMSSFTP    SFTP `koanf:"sftp_lms"`

	SMTP SMTP `koanf:"smtp"`

	Output Output `koanf:"output"`
}

// New creates a Config with defaults mirroring the production deployment.
func New() *Config {
	c := &Config{
		LogLevel:   "info",
		LogDir:     "logs",
		TempDir:    "temp",
		ArchiveDir: "archive",
		Warehouse:  Database{Driver: "sqlite3", DSN: "warehouse.db"},
		Directory:  Database{Driver: "sqlite3", DSN: "directory.db"},
		Tables: Tables{
			StagingReport:      "tmp_AdoaReport",
			StagingCompletions: "tmp_Tracorp_Daily",
			Ledger:             "MasterCompletions",
		},
		Roster: Roster{
			Table:       "VW_EmployeeRoster",
			IDColumn:    "EIN",
			EmailColumn: "EmployeeEmailAddress",
		},
		Report: Source{
			Name:            "adoa_report",
			Format:          FormatWorkbook,
			Path:            "AllAdoaCompletions.xlsx",
			StatusColumn:    "Status",
			CompletedCode:   "4",
			ActivityColumns: []string{"Activity Code", "ActivityCode"},
			DateColumns:     []string{"Completion Date", "CompletionDate"},
			ScoreColumn:     "Score",
			EmailColumns:    []string{"Student ID"},
		},
		Completions: Source{
			Name:             "tracorp_daily",
			Format:           FormatDelimited,
			Path:             "TracorpCompletions.csv",
			Delimiter:        ",",
			StatusColumn:     "Status",
			CompletedCode:    "4",
			ActivityColumns:  []string{"ActivityCode", "Activity Code"},
			DateColumns:      []string{"CompletionDate", "Completion Date"},
			ScoreColumn:      "Score",
			EmailColumns:     []string{"Student Email"},
			EmployeeIDColumn: "Student Username",
			RecencyDays:      21,
		},
		ActiveActivities: defaultActiveActivities(),
		ReportSFTP:       SFTP{Port: 22},
		LMSSFTP:          SFTP{Port: 22},
		SMTP:             SMTP{Port: 25},
		Output: Output{
			CSVName:   "SumTotalCompletions.csv",
			TmpName:   "SumTotalCompletions_tmp.csv",
			TxtName:   "SumTotalCompletions.txt",
			Delimiter: ",",
		},
	}
	return c
}

// defaultActiveActivities is the currently relevant activity allow-list.
// Preserved as configurable data; membership is a business rule owned by the
// training team.
func defaultActiveActivities() []string {
	return []string{
		"ADAPPAB100W", "ADAPPRQ200W", "ADAPPRQ210W", "ADAPPRQ220W",
		"ADAPPRQ230W", "ADAPPRQ270", "ADAPPRQ300W", "ADAPPSC300",
		"ADAPPSC310W", "ADASETDS01", "ADASETDS02", "ADASETDS03",
		"ADASETDS04", "ADASETDS05", "ADASETDSINTRO", "ADBEN102",
		"ADORI100", "ADRISKSTF", "AZPPLATFORM-EES",
		"AZPPLATFORM-MGRS", "CIS001", "HRIS0064", "HRIS0065",
		"LAW1000", "LAW1002", "LAW1003", "LAW1004", "LAW1005",
		"LAW1006", "LAW1006EMP", "LAW1007", "LDR3000", "LDR3001",
		"MGT1000", "MGT1001", "MGT1002", "MGT1003", "MGT1004",
		"MGT1005", "MGT1006", "MGT1007", "PCI0002", "PCI0003",
		"PCI0004", "PCI0005", "RM29", "SPSORI100", "SPSPERFAPP",
		"TRP1001", "TRP1002", "TRP1003", "TRP1004", "TRVPOL",
	}
}
