package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/davidkna/tftp/internal/utils"
	"github.com/davidkna/tftp/pkg/server"
)

var (
	tftpPort     = utils.GetEnv[string]("TFTP_PORT", "69", false)
	logLevel     = utils.GetEnv[string]("TFTP_LOG_LEVEL", "info", false)
	timeout      = utils.GetEnv[uint]("TFTP_TIMEOUT", "5", false)
	numTries     = utils.GetEnv[uint]("TFTP_NUM_TRIES", "5", false)
	maxBlockSize = utils.GetEnv[uint]("TFTP_MAX_BLKSIZE", "65464", false)
	tftpBaseDir  = utils.GetEnv[string]("TFTP_BASE_DIR", defaultBaseDir(), false)
)

func defaultBaseDir() string {
	p, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("error while getting user home dir: %w", err))
	}

	baseDir := fmt.Sprintf("%s/tftp", p)

	if _, err := os.Stat(baseDir); err != nil {
		if !os.IsNotExist(err) {
			panic(fmt.Errorf("error while checking tftp base dir: %w", err))
		}

		if err := os.Mkdir(baseDir, 0o750); err != nil {
			panic(fmt.Errorf("error while creating tftp base dir: %w", err))
		}
	}

	return baseDir
}

func main() {
	l := utils.NewLogger(logLevel)
	s := server.NewServer(l, tftpPort, timeout, int(numTries), int(maxBlockSize), tftpBaseDir)

	go func() {
		if err := s.ListenAndServe(); err != nil {
			l.Error(err.Error())
		}
	}()

	l.Infof("serving %s on port %s", tftpBaseDir, tftpPort)

	defer func() {
		if err := s.Close(); err != nil {
			panic(err)
		}

		l.Infof("closed connection on port %s", tftpPort)
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan
}
