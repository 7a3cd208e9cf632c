package contracts

// Pipeline Stage 정의 (SSOT)
// 모든 로그, 메트릭, 실행 결과에서 이 상수를 사용해야 함
//
// 파이프라인 흐름:
//   S0 → S1 → S2 → S3 → S4 → S5 → S6
//   Ingest  Clean  Encode  Features  Merge  TimeSeries  Persist

// Stage represents a pipeline stage
type Stage string

const (
	// StageIngest S0: 원천 데이터 적재 및 스키마 검증
	// 위치: internal/s0_ingest/
	StageIngest Stage = "S0_INGEST"

	// StageClean S1: 식별자/카테고리 정규화, 중복 제거, 기간 보완
	// 위치: internal/s1_clean/
	StageClean Stage = "S1_CLEAN"

	// StageEncode S2: 범주형 코드 매핑 (영속)
	// 위치: internal/s2_features/encoder.go
	StageEncode Stage = "S2_ENCODE"

	// StageFeatures S3: 주간→일간 변환, 달력/주기 피처, 재고 추론
	// 위치: internal/s2_features/
	StageFeatures Stage = "S3_FEATURES"

	// StageMerge S4: 과거 데이터 병합 (gap 허용치 검사)
	// 위치: internal/s3_timeseries/merge.go
	StageMerge Stage = "S4_MERGE"

	// StageTimeSeries S5: lag / rolling 피처
	// 위치: internal/s3_timeseries/generator.go
	StageTimeSeries Stage = "S5_TIMESERIES"

	// StagePersist S6: 결과 저장 (본 파일 + 백업)
	// 위치: internal/pipeline/stages.go
	StagePersist Stage = "S6_PERSIST"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageIngest:
		return "S0"
	case StageClean:
		return "S1"
	case StageEncode:
		return "S2"
	case StageFeatures:
		return "S3"
	case StageMerge:
		return "S4"
	case StageTimeSeries:
		return "S5"
	case StagePersist:
		return "S6"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageIngest:
		return "source ingestion"
	case StageClean:
		return "identity and period cleaning"
	case StageEncode:
		return "categorical encoding"
	case StageFeatures:
		return "calendar and stock features"
	case StageMerge:
		return "historical merge"
	case StageTimeSeries:
		return "lag and rolling features"
	case StagePersist:
		return "output persistence"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageIngest,
		StageClean,
		StageEncode,
		StageFeatures,
		StageMerge,
		StageTimeSeries,
		StagePersist,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// Mode selects which input contract and stage sequence a run uses
type Mode string

const (
	ModeWeekly     Mode = "weekly"
	ModeDaily      Mode = "daily"
	ModePrediction Mode = "prediction"
)

// ParseMode validates a mode string
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeWeekly, ModeDaily, ModePrediction:
		return Mode(s), nil
	default:
		return "", &ValidationError{Field: "mode", Message: "must be one of weekly, daily, prediction"}
	}
}

// PipelineResult represents the result of a pipeline stage execution
type PipelineResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    int64                  `json:"duration_ms"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// RunSummary records one orchestrator invocation for reproducibility
type RunSummary struct {
	RunID      string           `json:"run_id"`
	Mode       Mode             `json:"mode"`
	ConfigHash string           `json:"config_hash"`
	StartedAt  int64            `json:"started_at"`
	Rows       int              `json:"rows"`
	Products   int              `json:"products"`
	Merged     bool             `json:"historical_merged"`
	OutputPath string           `json:"output_path,omitempty"`
	BackupPath string           `json:"backup_path,omitempty"`
	Results    []PipelineResult `json:"results"`
}
