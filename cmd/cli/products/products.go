package products

import (
	"errors"
	"fmt"

	"github.com/crucial707/hci-catalog/cmd/cli/config"
	"github.com/crucial707/hci-catalog/cmd/cli/output"
	"github.com/crucial707/hci-catalog/internal/apperr"
	"github.com/crucial707/hci-catalog/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Products
// ==========================
func InitProducts(rootCmd *cobra.Command) {

	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "Manage catalog products",
	}

	productsCmd.AddCommand(
		listProductsCmd(),
		getProductCmd(),
		addProductCmd(),
		updateProductCmd(),
		deleteProductCmd(),
	)

	rootCmd.AddCommand(productsCmd)
}

// ==========================
// LIST
// ==========================
func listProductsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := config.NewSession()
			defer store.Close()

			if err := store.Load(config.Context(cmd)); err != nil {
				return err
			}

			products := store.Products()
			if asJSON {
				return output.PrintJSON(products)
			}
			renderProducts(products)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// ==========================
// GET
// ==========================
func getProductCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.NewAPI().GetProduct(config.Context(cmd), args[0])
			if errors.Is(err, apperr.ErrNotFound) {
				return fmt.Errorf("product %s not found", args[0])
			}
			if err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(p)
			}
			renderProducts([]models.Product{p})
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// ==========================
// ADD
// ==========================
func addProductCmd() *cobra.Command {
	var in productFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := config.NewSession()
			defer store.Close()

			p, err := store.AddProduct(config.Context(cmd), in.fields(cmd))
			if err != nil {
				return err
			}
			return in.print(p)
		},
	}

	in.register(cmd)
	return cmd
}

// ==========================
// UPDATE
// ==========================
func updateProductCmd() *cobra.Command {
	var in productFlags

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a product; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := in.fields(cmd)
			if fields.Empty() {
				return fmt.Errorf("nothing to update: pass at least one of --name, --price, --stock, --category")
			}

			store := config.NewSession()
			defer store.Close()

			p, err := store.UpdateProduct(config.Context(cmd), args[0], fields)
			if err != nil {
				return err
			}
			return in.print(p)
		},
	}

	in.register(cmd)
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteProductCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := config.NewSession()
			defer store.Close()

			// Load so the confirmation can name the product.
			if err := store.Load(config.Context(cmd)); err != nil {
				return err
			}
			return store.DeleteProduct(config.Context(cmd), args[0])
		},
	}
}

// ==========================
// Helpers
// ==========================

// productFlags binds the writable product fields. Only flags the user set
// are sent, so a missing required field is reported by the server.
type productFlags struct {
	name     string
	price    float64
	stock    int
	category string
	asJSON   bool
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().Float64Var(&f.price, "price", 0, "unit price")
	cmd.Flags().IntVar(&f.stock, "stock", 0, "units in stock")
	cmd.Flags().StringVar(&f.category, "category", "", "product category")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print JSON instead of a table")
}

func (f *productFlags) fields(cmd *cobra.Command) models.ProductFields {
	var out models.ProductFields
	if cmd.Flags().Changed("name") {
		out.Name = &f.name
	}
	if cmd.Flags().Changed("price") {
		out.Price = &f.price
	}
	if cmd.Flags().Changed("stock") {
		out.Stock = &f.stock
	}
	if cmd.Flags().Changed("category") {
		out.Category = &f.category
	}
	return out
}

func (f *productFlags) print(p models.Product) error {
	if f.asJSON {
		return output.PrintJSON(p)
	}
	renderProducts([]models.Product{p})
	return nil
}

func renderProducts(products []models.Product) {
	rows := make([][]interface{}, 0, len(products))
	for _, p := range products {
		rows = append(rows, []interface{}{
			p.ID, p.Name, fmt.Sprintf("%.2f", p.Price), p.Stock, p.Category, output.Time(p.UpdatedAt),
		})
	}
	output.RenderTable([]string{"ID", "NAME", "PRICE", "STOCK", "CATEGORY", "UPDATED"}, rows)
}
