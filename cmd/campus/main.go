// Package main - точка входа Campus Hub.
//
// Один бинарник с подкомандами:
//   - serve   - HTTP API, фоновые задачи и доставка уведомлений
//   - demo    - сценарий действий студента с выводом в stdout
//   - catalog - просмотр каталога курсов и мероприятий
//   - watch   - подписка на уведомления из Redis
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}
