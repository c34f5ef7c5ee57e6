// Package process supervises the hardware bridge subprocess.
//
// When the bridge is managed, parkrunner launches it alongside the core
// and keeps it alive for the length of the run.
//
// Features:
//   - Start/stop with graceful shutdown of the whole process group
//   - Automatic restart with exponential back-off and capped attempts
//   - Back-off reset once the process has stayed up for a stable period
//   - Optional watchdog health check
//   - Line-by-line capture of stdout/stderr into the logger
//
// Example usage:
//
//	sup := process.NewSupervisor(process.ConfigFromBridge(cfg.Bridge))
//	sup.SetLogger(logger.Component("bridge"))
//	if err := sup.Start(ctx); err != nil {
//	    return err
//	}
//	defer sup.Stop()
package process
