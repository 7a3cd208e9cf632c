package pipelineconfig

// Config는 전처리 파이프라인 알고리즘 파라미터 전체
// ⭐ SSOT: 모든 stage 파라미터는 여기서만 정의
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Cleaning   Cleaning   `yaml:"cleaning" json:"cleaning"`
	Encoding   Encoding   `yaml:"encoding" json:"encoding"`
	Stock      Stock      `yaml:"stock" json:"stock"`
	History    History    `yaml:"history" json:"history"`
	TimeSeries TimeSeries `yaml:"time_series" json:"time_series"`
	Split      Split      `yaml:"split" json:"split"`
}

// Meta 메타 정보
type Meta struct {
	Version string `yaml:"version" json:"version"`
}

// Cleaning S1: 정규화 / 중복 제거 / 기간 보완
type Cleaning struct {
	RemoveInactive       bool              `yaml:"remove_inactive" json:"remove_inactive"`
	InactiveCutoffWeeks  int               `yaml:"inactive_cutoff_weeks" json:"inactive_cutoff_weeks"`
	CompleteDailyPeriods bool              `yaml:"complete_daily_periods" json:"complete_daily_periods"`
	Synonyms             map[string]string `yaml:"synonyms" json:"synonyms"` // 기본 동의어 테이블에 추가
}

// Encoding S2: 범주형 코드 매핑 대상
type Encoding struct {
	Features []string `yaml:"features" json:"features"`
}

// Stock S3: 재고 상태 추론
type Stock struct {
	LagRows    int  `yaml:"lag_rows" json:"lag_rows"`
	ApplyDaily bool `yaml:"apply_daily" json:"apply_daily"`
}

// History S4: 과거 데이터 병합
type History struct {
	MergeWeekly      bool `yaml:"merge_weekly" json:"merge_weekly"`
	MergeDaily       bool `yaml:"merge_daily" json:"merge_daily"`
	MergePrediction  bool `yaml:"merge_prediction" json:"merge_prediction"`
	LookbackDays     int  `yaml:"lookback_days" json:"lookback_days"`
	GapThresholdDays int  `yaml:"gap_threshold_days" json:"gap_threshold_days"`
}

// TimeSeries S5: lag / rolling 피처
type TimeSeries struct {
	Column     string     `yaml:"column" json:"column"`
	Workers    int        `yaml:"workers" json:"workers"`
	Historical SeriesMode `yaml:"historical" json:"historical"`
	Prediction SeriesMode `yaml:"prediction" json:"prediction"`
}

// SeriesMode horizons + 결측 처리 정책 (모드별)
type SeriesMode struct {
	Horizons []int  `yaml:"horizons" json:"horizons"`
	Fill     string `yaml:"fill" json:"fill"` // zero | missing
}

// Split 학습/검증 분할
type Split struct {
	Features []string `yaml:"features" json:"features"`
	Target   string   `yaml:"target" json:"target"`
}

// Fill policies
const (
	FillZero    = "zero"
	FillMissing = "missing"
)

// Default returns the parameters used when no YAML file is configured
func Default() *Config {
	return &Config{
		Meta: Meta{Version: "v1"},
		Cleaning: Cleaning{
			RemoveInactive:      true,
			InactiveCutoffWeeks: 12,
		},
		Encoding: Encoding{
			Features: []string{"category", "product_id"},
		},
		Stock: Stock{
			LagRows: 7,
		},
		History: History{
			MergeDaily:       true,
			MergePrediction:  true,
			LookbackDays:     365,
			GapThresholdDays: 5,
		},
		TimeSeries: TimeSeries{
			Column:  "quantity",
			Workers: 4,
			Historical: SeriesMode{
				Horizons: []int{1, 7, 14, 30, 90, 365},
				Fill:     FillZero,
			},
			Prediction: SeriesMode{
				Horizons: []int{1, 7, 30},
				Fill:     FillMissing,
			},
		},
		Split: Split{
			Features: []string{
				"product_id_encoded", "category_encoded",
				"quantity_lag_1", "quantity_lag_7",
				"quantity_rolling_avg_7", "quantity_rolling_avg_30",
				"month_cos", "month_sin", "weekday_cos", "weekday_sin",
				"in_stock", "per_item_value",
			},
			Target: "quantity",
		},
	}
}
