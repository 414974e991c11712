package clickhouse

// Schema statements are idempotent (CREATE ... IF NOT EXISTS) and run at
// startup. Every table is a ReplacingMergeTree keyed on the natural
// record identity, so re-running an analysis upserts instead of
// duplicating; reads use FINAL to collapse unmerged versions.
var SchemaStatements = []string{
	`CREATE DATABASE IF NOT EXISTS gammapull`,

	`CREATE TABLE IF NOT EXISTS gammapull.price_bars (
		ticker      LowCardinality(String),
		day         Date,
		open        Float64,
		high        Float64,
		low         Float64,
		close       Float64,
		volume      Float64,
		inserted_at DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(inserted_at)
	ORDER BY (ticker, day)`,

	`CREATE TABLE IF NOT EXISTS gammapull.dealer_metrics (
		ticker             LowCardinality(String),
		snapshot_at        DateTime,
		spot               Float64,
		spot_source        LowCardinality(String),
		gex_total          Float64,
		gex_net            Float64,
		gamma_flip         Nullable(Float64),
		call_walls         String,
		put_walls          String,
		primary_call_wall  String,
		primary_put_wall   String,
		raw_contract_count UInt32,
		eligible_count     UInt32,
		position           LowCardinality(String),
		confidence         LowCardinality(String),
		status             LowCardinality(String),
		status_reason      LowCardinality(String),
		pin_risk           LowCardinality(String),
		config             String,
		inserted_at        DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(inserted_at)
	ORDER BY (ticker, snapshot_at)`,

	`CREATE TABLE IF NOT EXISTS gammapull.wyckoff_events (
		ticker      LowCardinality(String),
		event_date  Date,
		event_type  LowCardinality(String),
		bar_index   Int32,
		direction   LowCardinality(String),
		role        LowCardinality(String),
		confidence  Float64,
		price       Float64,
		range_z     Float64,
		volume_z    Float64,
		inserted_at DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(inserted_at)
	ORDER BY (ticker, event_date, event_type, bar_index)`,

	`CREATE TABLE IF NOT EXISTS gammapull.regime_states (
		ticker       LowCardinality(String),
		day          Date,
		regime       LowCardinality(String),
		confidence   Float64,
		set_by_event LowCardinality(String),
		set_on       Date,
		inserted_at  DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(inserted_at)
	ORDER BY (ticker, day)`,

	`CREATE TABLE IF NOT EXISTS gammapull.sequences (
		sequence_id     String,
		ticker          LowCardinality(String),
		kind            LowCardinality(String),
		start_date      Date,
		completion_date Date,
		legs            String,
		terminal_type   LowCardinality(String),
		terminal_date   Date,
		inserted_at     DateTime DEFAULT now()
	) ENGINE = ReplacingMergeTree(inserted_at)
	ORDER BY (ticker, sequence_id)`,
}
