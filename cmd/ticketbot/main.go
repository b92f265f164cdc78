package main

import (
	"github.com/sirupsen/logrus"

	"github.com/rawstudio/ticketbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}
