package dump_test

import (
	"fmt"
	"os"

	"dumper/pkg/dump"
)

type order struct {
	ID     int
	Paid   bool
	Status string
}

func Example() {
	folder, _ := os.MkdirTemp("", "dump")
	defer os.RemoveAll(folder)

	d := dump.New(dump.Config{Enabled: true, Folder: folder})
	orders := []order{{1, true, "shipped"}, {2, false, "pending"}}

	_ = dump.TSV(d, orders, "orders", func(o order) any {
		return struct {
			ID   int
			Paid bool
		}{o.ID, o.Paid}
	}, true)
	_ = dump.JSON(d, orders[0], "first", nil)

	tsv, _ := d.ResolveFile("orders", dump.TSVExtension)
	b, _ := tsv.ReadAll()
	fmt.Printf("%q\n", b)

	js, _ := d.ResolveFile("first", dump.JSONExtension)
	b, _ = js.ReadAll()
	fmt.Println(string(b))
	// Output:
	// "ID\tPaid\r\n1\tTrue\r\n2\tFalse\r\n"
	// {"ID":1,"Paid":true,"Status":"shipped"}
}
