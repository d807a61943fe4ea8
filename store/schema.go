package store

// schemaSQL is the DDL for every pipeline table: staging, dimensional
// warehouse, analytics outputs and run metadata.
const schemaSQL = `
-- Cleaned staging rows, only schema-valid transactions land here
CREATE TABLE IF NOT EXISTS stg_sales_cleaned (
    date_parsed DATE NOT NULL,
    customer_id INTEGER NOT NULL,
    order_id INTEGER NOT NULL,
    sales_amount REAL NOT NULL,
    data_quality_flag TEXT DEFAULT 'VALID',
    source_file TEXT,
    load_timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Date dimension, one row per calendar day in the observed range
CREATE TABLE IF NOT EXISTS dim_date (
    date_id INTEGER PRIMARY KEY,
    full_date DATE NOT NULL,
    year INTEGER NOT NULL,
    quarter INTEGER NOT NULL,
    month INTEGER NOT NULL,
    month_name TEXT NOT NULL,
    month_abbr TEXT NOT NULL,
    week_of_year INTEGER NOT NULL,
    day_of_year INTEGER NOT NULL,
    day_of_month INTEGER NOT NULL,
    day_of_week INTEGER NOT NULL,
    day_name TEXT NOT NULL,
    day_abbr TEXT NOT NULL,
    is_weekend INTEGER NOT NULL,
    is_month_start INTEGER NOT NULL,
    is_month_end INTEGER NOT NULL,
    is_quarter_start INTEGER NOT NULL,
    is_quarter_end INTEGER NOT NULL,
    is_year_start INTEGER NOT NULL,
    is_year_end INTEGER NOT NULL,
    date_string TEXT NOT NULL,
    month_year TEXT NOT NULL,
    quarter_year TEXT NOT NULL
);

-- Customer dimension with lifetime aggregates and cohort attribution
CREATE TABLE IF NOT EXISTS dim_customer (
    customer_id INTEGER PRIMARY KEY,
    first_order_date DATE NOT NULL,
    last_order_date DATE NOT NULL,
    total_transactions INTEGER NOT NULL,
    total_spent REAL NOT NULL,
    avg_order_value REAL NOT NULL,
    total_orders INTEGER NOT NULL,
    first_order_cohort_month TEXT NOT NULL,
    first_order_cohort_quarter TEXT NOT NULL,
    first_order_cohort_year INTEGER NOT NULL,
    days_since_first_order INTEGER NOT NULL,
    days_since_last_order INTEGER NOT NULL,
    customer_vintage_group TEXT NOT NULL,
    customer_segment TEXT NOT NULL,
    customer_status TEXT NOT NULL
);

-- Order dimension with per-customer sequencing
CREATE TABLE IF NOT EXISTS dim_order (
    order_id INTEGER PRIMARY KEY,
    customer_id INTEGER NOT NULL REFERENCES dim_customer(customer_id),
    order_date DATE NOT NULL,
    date_id INTEGER NOT NULL REFERENCES dim_date(date_id),
    order_amount REAL NOT NULL,
    order_year INTEGER NOT NULL,
    order_month INTEGER NOT NULL,
    order_quarter INTEGER NOT NULL,
    order_day_of_week INTEGER NOT NULL,
    order_day_name TEXT NOT NULL,
    is_weekend_order INTEGER NOT NULL,
    customer_order_sequence INTEGER NOT NULL,
    is_first_order INTEGER NOT NULL,
    days_since_customer_first_order INTEGER NOT NULL,
    days_since_previous_order INTEGER,
    order_amount_quartile TEXT NOT NULL
);

-- Sales fact grain: customer x order x day
CREATE TABLE IF NOT EXISTS fact_sales (
    customer_id INTEGER NOT NULL REFERENCES dim_customer(customer_id),
    order_id INTEGER NOT NULL REFERENCES dim_order(order_id),
    date_id INTEGER NOT NULL REFERENCES dim_date(date_id),
    sales_amount REAL NOT NULL,
    transaction_count INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (customer_id, order_id, date_id)
);

-- Monthly aggregated business metrics
CREATE TABLE IF NOT EXISTS monthly_metrics (
    period_month TEXT PRIMARY KEY,
    total_sales REAL NOT NULL,
    avg_order_value REAL NOT NULL,
    total_transactions INTEGER NOT NULL,
    total_orders INTEGER NOT NULL,
    unique_customers INTEGER NOT NULL,
    purchase_frequency REAL NOT NULL
);

-- Month-over-month cohort retention
CREATE TABLE IF NOT EXISTS cohort_analysis (
    cohort_month TEXT NOT NULL,
    activity_month TEXT NOT NULL,
    months_since_acquisition INTEGER NOT NULL,
    cohort_size INTEGER NOT NULL,
    active_customers INTEGER NOT NULL,
    retention_rate_percent REAL NOT NULL,
    total_sales REAL NOT NULL,
    avg_order_value REAL NOT NULL,
    PRIMARY KEY (cohort_month, activity_month)
);

-- Fixed-window cumulative retention per cohort
CREATE TABLE IF NOT EXISTS cumulative_retention_analysis (
    cohort_month TEXT NOT NULL,
    retention_window_months INTEGER NOT NULL,
    cohort_size INTEGER NOT NULL,
    active_customers INTEGER NOT NULL,
    cumulative_retention_rate REAL NOT NULL,
    avg_purchase_frequency REAL NOT NULL,
    total_revenue REAL NOT NULL,
    avg_customer_value REAL NOT NULL,
    PRIMARY KEY (cohort_month, retention_window_months)
);

-- Lifetime value and churn risk per customer
CREATE TABLE IF NOT EXISTS customer_ltv_analysis (
    customer_id INTEGER PRIMARY KEY,
    acquisition_cohort TEXT NOT NULL,
    customer_segment TEXT NOT NULL,
    total_orders INTEGER NOT NULL,
    total_spent REAL NOT NULL,
    avg_order_value REAL NOT NULL,
    days_active INTEGER NOT NULL,
    predicted_ltv_score INTEGER NOT NULL,
    churn_risk_score REAL NOT NULL
);

-- RFM segmentation per customer
CREATE TABLE IF NOT EXISTS customer_segmentation (
    customer_id INTEGER PRIMARY KEY,
    recency_score INTEGER NOT NULL,
    frequency_score INTEGER NOT NULL,
    monetary_score INTEGER NOT NULL,
    rfm_segment TEXT NOT NULL,
    segment_description TEXT NOT NULL,
    recommended_strategy TEXT NOT NULL
);

-- Seasonal indices by month-of-year and quarter
CREATE TABLE IF NOT EXISTS seasonal_trends (
    period_type TEXT NOT NULL,
    period_value TEXT NOT NULL,
    avg_sales REAL NOT NULL,
    avg_orders INTEGER NOT NULL,
    avg_customers INTEGER NOT NULL,
    seasonal_index REAL NOT NULL,
    trend_direction TEXT NOT NULL,
    PRIMARY KEY (period_type, period_value)
);

-- Lifecycle stage headcount as of the reference date
CREATE TABLE IF NOT EXISTS customer_lifecycle_snapshot (
    snapshot_date DATE NOT NULL,
    lifecycle_stage TEXT NOT NULL,
    customers INTEGER NOT NULL,
    share_of_base REAL NOT NULL,
    avg_days_since_last_order REAL NOT NULL,
    PRIMARY KEY (snapshot_date, lifecycle_stage)
);

-- Campaign targeting assignments
CREATE TABLE IF NOT EXISTS campaign_targets (
    customer_id INTEGER NOT NULL,
    campaign_type TEXT NOT NULL,
    priority_level INTEGER NOT NULL,
    estimated_value REAL NOT NULL,
    days_since_last_order INTEGER NOT NULL,
    recommended_action TEXT NOT NULL,
    PRIMARY KEY (customer_id, campaign_type)
);

-- Ranked business insights
CREATE TABLE IF NOT EXISTS business_insights (
    insight_id TEXT PRIMARY KEY,
    insight_type TEXT NOT NULL,
    insight_title TEXT NOT NULL,
    insight_description TEXT NOT NULL,
    metric_value REAL NOT NULL,
    recommendation TEXT NOT NULL,
    priority_level INTEGER NOT NULL
);

-- Pipeline run audit trail
CREATE TABLE IF NOT EXISTS pipeline_runs (
    run_id TEXT PRIMARY KEY,
    layer TEXT NOT NULL,
    table_name TEXT NOT NULL,
    status TEXT NOT NULL,
    start_time DATETIME NOT NULL,
    end_time DATETIME,
    row_count INTEGER,
    error_message TEXT
);

-- Data quality check results per run
CREATE TABLE IF NOT EXISTS data_quality_checks (
    check_id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES pipeline_runs(run_id),
    table_name TEXT NOT NULL,
    check_type TEXT NOT NULL,
    check_name TEXT NOT NULL,
    expected_value TEXT,
    actual_value TEXT,
    status TEXT NOT NULL,
    error_details TEXT,
    check_time DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_stg_cleaned_customer ON stg_sales_cleaned(customer_id);
CREATE INDEX IF NOT EXISTS idx_dim_order_customer ON dim_order(customer_id);
CREATE INDEX IF NOT EXISTS idx_dim_order_date ON dim_order(date_id);
CREATE INDEX IF NOT EXISTS idx_fact_date ON fact_sales(date_id);
CREATE INDEX IF NOT EXISTS idx_cohort_activity ON cohort_analysis(activity_month);
CREATE INDEX IF NOT EXISTS idx_dq_run ON data_quality_checks(run_id);
CREATE INDEX IF NOT EXISTS idx_runs_layer ON pipeline_runs(layer, table_name);
`
