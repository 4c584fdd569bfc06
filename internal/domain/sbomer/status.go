package sbomer

// GenerationStatus is the lifecycle state of a generation. The set of known
// values is closed but decoding never rejects an unknown one; it is kept and
// rendered verbatim.
type GenerationStatus string

const (
	GenerationStatusNew        GenerationStatus = "NEW"
	GenerationStatusGenerating GenerationStatus = "GENERATING"
	GenerationStatusFinished   GenerationStatus = "FINISHED"
	GenerationStatusFailed     GenerationStatus = "FAILED"
)

func (s GenerationStatus) IsKnown() bool {
	switch s {
	case GenerationStatusNew, GenerationStatusGenerating, GenerationStatusFinished, GenerationStatusFailed:
		return true
	}
	return false
}

func (s GenerationStatus) IsTerminal() bool {
	return s == GenerationStatusFinished || s == GenerationStatusFailed
}

func (s GenerationStatus) String() string { return string(s) }

// Label is the human readable form used by renderers. Unknown values are
// returned unchanged.
func (s GenerationStatus) Label() string {
	switch s {
	case GenerationStatusNew:
		return "New"
	case GenerationStatusGenerating:
		return "In progress"
	case GenerationStatusFinished:
		return "Finished"
	case GenerationStatusFailed:
		return "Failed"
	}
	return string(s)
}

// GenerationResult is only meaningful once the status is terminal.
type GenerationResult string

const (
	GenerationResultSuccess          GenerationResult = "SUCCESS"
	GenerationResultErrGeneral       GenerationResult = "ERR_GENERAL"
	GenerationResultErrConfigInvalid GenerationResult = "ERR_CONFIG_INVALID"
	GenerationResultErrConfigMissing GenerationResult = "ERR_CONFIG_MISSING"
	GenerationResultErrIndexInvalid  GenerationResult = "ERR_INDEX_INVALID"
	GenerationResultErrGeneration    GenerationResult = "ERR_GENERATION"
	GenerationResultErrSystem        GenerationResult = "ERR_SYSTEM"
	GenerationResultErrMulti         GenerationResult = "ERR_MULTI"
)

func (r GenerationResult) IsKnown() bool {
	switch r {
	case GenerationResultSuccess, GenerationResultErrGeneral, GenerationResultErrConfigInvalid,
		GenerationResultErrConfigMissing, GenerationResultErrIndexInvalid, GenerationResultErrGeneration,
		GenerationResultErrSystem, GenerationResultErrMulti:
		return true
	}
	return false
}

func (r GenerationResult) IsSuccess() bool { return r == GenerationResultSuccess }

func (r GenerationResult) String() string { return string(r) }

type EventStatus string

const (
	EventStatusNew        EventStatus = "NEW"
	EventStatusInProgress EventStatus = "IN_PROGRESS"
	EventStatusProcessed  EventStatus = "PROCESSED"
	EventStatusError      EventStatus = "ERROR"
	EventStatusIgnored    EventStatus = "IGNORED"
)

func (s EventStatus) IsKnown() bool {
	switch s {
	case EventStatusNew, EventStatusInProgress, EventStatusProcessed, EventStatusError, EventStatusIgnored:
		return true
	}
	return false
}

func (s EventStatus) IsTerminal() bool {
	return s == EventStatusProcessed || s == EventStatusError || s == EventStatusIgnored
}

func (s EventStatus) String() string { return string(s) }

// ManifestQueryType names the manifest field a dashboard filter applies to.
type ManifestQueryType string

const (
	ManifestQueryPurl       ManifestQueryType = "purl"
	ManifestQueryIdentifier ManifestQueryType = "identifier"
	ManifestQueryID         ManifestQueryType = "id"
	ManifestQueryGeneration ManifestQueryType = "generation"
)

var manifestQueryFields = map[ManifestQueryType]string{
	ManifestQueryPurl:       "rootPurl",
	ManifestQueryIdentifier: "identifier",
	ManifestQueryID:         "id",
	ManifestQueryGeneration: "generation.id",
}

func ManifestQueryTypes() []ManifestQueryType {
	return []ManifestQueryType{ManifestQueryPurl, ManifestQueryIdentifier, ManifestQueryID, ManifestQueryGeneration}
}

func (t ManifestQueryType) IsKnown() bool {
	_, ok := manifestQueryFields[t]
	return ok
}

// Field is the backend attribute the query type filters on, or "" when the
// type is unknown.
func (t ManifestQueryType) Field() string {
	return manifestQueryFields[t]
}
