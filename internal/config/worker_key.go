package config

type WorkerKeyStruct struct {
	PersistMalpracticeQueue string
	RetryAttemptsQueue      string
}

var WorkerKey = &WorkerKeyStruct{
	PersistMalpracticeQueue: "persist_malpractice_queue",
	RetryAttemptsQueue:      "retry_attempts_queue",
}
