package main

import (
	"github.com/davidkna/tftp/internal/utils"
	"github.com/davidkna/tftp/pkg/client"
)

var (
	logLevel = utils.GetEnv[string]("TFTP_LOG_LEVEL", "error", false)
	numTries = utils.GetEnv[uint]("TFTP_NUM_TRIES", "5", false)
)

func main() {
	l := utils.NewLogger(logLevel)
	c := client.NewClient(l, numTries)

	defer func() {
		if err := c.Close(); err != nil {
			l.Error(err.Error())
		}
	}()

	client.NewCli(l, c).Read()
}
