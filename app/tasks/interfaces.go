package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API layer to manage background
// fact-check processing. Provides task queue management, worker pool
// control, and the non-blocking fact-check trigger.
// Example usage:
//
//	scheduler := NewScheduler(orch, agg, articleRepo)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.TriggerFactCheck(articleID, url, mode)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	TriggerFactCheck(articleID, url string, mode string)
}
