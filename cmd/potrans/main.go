package main

import "github.com/oukeidos/potrans/internal/i18n"

func main() {
	i18n.Init("")
	execute()
}
