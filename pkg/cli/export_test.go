package cli

var RunWithWriter = run
