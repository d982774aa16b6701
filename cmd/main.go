package main

import (
	"aliyun-rds-ip-whitelist/internal/cmd"
)

func main() {
	cmd.Execute()
}
