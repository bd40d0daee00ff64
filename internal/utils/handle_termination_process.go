package utils

import (
	"os"
	"os/signal"
	"syscall"
)

// HandleTerminationProcess вызывает cleanup при получении SIGINT или
// SIGTERM и завершает процесс. Используется для закрытия пула базы
// данных и остановки фоновых циклов.
func HandleTerminationProcess(cleanup func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cleanup()
		os.Exit(1)
	}()
}
