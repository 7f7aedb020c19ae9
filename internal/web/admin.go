package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pcshop/internal/apperror"
	"pcshop/internal/auth"
	"pcshop/internal/category"
	"pcshop/internal/logger"
	"pcshop/internal/manufacturer"
	"pcshop/internal/product"
	"pcshop/internal/upload"
	"pcshop/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxFormMemory = 32 << 20

var (
	ErrAdminRequired = apperror.New(apperror.Forbidden, "an admin account is required")
	ErrInvalidStock  = apperror.Invalid("stock must be a whole number")
	ErrInvalidAmount = apperror.Invalid("price and discount must be numbers")
	ErrInvalidPoints = apperror.Invalid("point cost must be a whole number")
)

type adminTokenKey struct{}

func adminToken(ctx context.Context) string {
	token, _ := ctx.Value(adminTokenKey{}).(string)
	return token
}

func (s *Server) setTokenCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    token,
		Path:     "/admin",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// requireAdmin sends visitors without a session cookie to the login page.
// The backend still checks the role on every write.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(auth.AccessTokenCookie)
		if err != nil || c.Value == "" {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), adminTokenKey{}, c.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// expired handles a backend that no longer accepts the session.
func (s *Server) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden) {
		s.clearTokenCookie(w)
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return true
	}
	return false
}

type loginData struct {
	layoutData
	Email string
}

func (s *Server) adminLayout(r *http.Request, title string) layoutData {
	l := s.layout(r, title)
	l.Admin = true
	return l
}

func (s *Server) adminLoginPage(w http.ResponseWriter, r *http.Request) {
	s.views.Render(w, r, http.StatusOK, "admin_login", loginData{layoutData: s.adminLayout(r, "Admin login")})
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	fail := func(status int, msg string) {
		data := loginData{layoutData: s.adminLayout(r, "Admin login"), Email: email}
		data.Error = msg
		s.views.Render(w, r, status, "admin_login", data)
	}

	res, err := s.api.Login(r.Context(), email, password)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			fail(apiErr.Status, apiErr.Message)
			return
		}
		logger.FromCtx(r.Context()).Error("admin login failed", zap.Error(err))
		fail(http.StatusBadGateway, messageOf(err))
		return
	}
	if res.User == nil || res.User.Role != user.RoleAdmin {
		fail(http.StatusForbidden, ErrAdminRequired.Message)
		return
	}

	s.setTokenCookie(w, res.AccessToken, time.Unix(res.ExpiresAt, 0))
	logger.FromCtx(r.Context()).Info("admin signed in", zap.Uint("user_id", res.User.ID))
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

func (s *Server) adminLogout(w http.ResponseWriter, r *http.Request) {
	s.clearTokenCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

var notices = map[string]string{
	"created": "Product created.",
	"updated": "Product updated.",
	"deleted": "Product deleted.",
}

type adminProductsData struct {
	layoutData
	Notice     string
	Search     string
	Products   []*product.Product
	Total      int64
	Page       int
	TotalPages int
	PrevURL    string
	NextURL    string
}

func (s *Server) adminProducts(w http.ResponseWriter, r *http.Request) {
	page := queryPage(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	q := url.Values{"page": {strconv.Itoa(page)}, "limit": {"20"}}
	filter := url.Values{}
	if search != "" {
		q.Set("search", search)
		filter.Set("search", search)
	}

	res, err := s.api.ListProducts(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data := adminProductsData{
		layoutData: s.adminLayout(r, "Products"),
		Notice:     notices[r.URL.Query().Get("notice")],
		Search:     search,
		Products:   res.Items,
		Total:      res.Total,
		Page:       page,
		TotalPages: totalPages(res.Total, 20),
	}
	if page > 1 {
		data.PrevURL = pageURL("/admin/products", filter, page-1)
	}
	if page < data.TotalPages {
		data.NextURL = pageURL("/admin/products", filter, page+1)
	}
	s.views.Render(w, r, http.StatusOK, "admin_products", data)
}

// productForm is the admin form as typed. Images holds one URL per line
// and Specs one "key: value" pair per line.
type productForm struct {
	Name           string
	Type           string
	CategoryID     string
	ManufacturerID string
	Description    string
	Stock          string
	OriginalPrice  string
	Discount       string
	Images         string
	Specs          string
	IsRedeemable   bool
	PointCost      string
}

func readProductForm(r *http.Request) productForm {
	return productForm{
		Name:           strings.TrimSpace(r.FormValue("name")),
		Type:           r.FormValue("type"),
		CategoryID:     r.FormValue("categoryId"),
		ManufacturerID: r.FormValue("manufacturerId"),
		Description:    r.FormValue("description"),
		Stock:          strings.TrimSpace(r.FormValue("stock")),
		OriginalPrice:  strings.TrimSpace(r.FormValue("originalPrice")),
		Discount:       strings.TrimSpace(r.FormValue("discount")),
		Images:         r.FormValue("images"),
		Specs:          r.FormValue("specs"),
		IsRedeemable:   r.FormValue("isRedeemable") == "on",
		PointCost:      strings.TrimSpace(r.FormValue("pointCost")),
	}
}

func formFromProduct(p *product.Product) productForm {
	f := productForm{
		Name:          p.Name,
		Type:          string(p.Type),
		Description:   p.Description,
		Stock:         strconv.Itoa(p.Stock),
		OriginalPrice: p.OriginalPrice.String(),
		Discount:      p.Discount.String(),
		Images:        strings.Join(p.Images, "\n"),
		Specs:         product.FormatSpecsText(p.Specs),
		IsRedeemable:  p.IsRedeemable,
		PointCost:     strconv.FormatInt(p.PointCost, 10),
	}
	if p.CategoryID != nil {
		f.CategoryID = *p.CategoryID
	}
	if p.ManufacturerID != nil {
		f.ManufacturerID = *p.ManufacturerID
	}
	return f
}

// suggestedSpecs pre-fills the specs box with the usual keys of a type.
func suggestedSpecs(t product.Type) string {
	var b strings.Builder
	for _, k := range product.SpecSuggestions[t] {
		b.WriteString(k)
		b.WriteString(": \n")
	}
	return b.String()
}

func (f *productForm) addImage(u string) {
	if strings.TrimSpace(f.Images) != "" && !strings.HasSuffix(f.Images, "\n") {
		f.Images += "\n"
	}
	f.Images += u
}

func (f productForm) imageList() []string {
	out := []string{}
	for _, line := range strings.Split(f.Images, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

type parsedForm struct {
	stock    int
	price    decimal.Decimal
	discount decimal.Decimal
	points   int64
	specs    map[string]string
}

func optionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// parse converts the numeric and spec fields. Spec lines left without a
// value are dropped.
func (f productForm) parse() (*parsedForm, error) {
	out := &parsedForm{}
	var err error

	if f.Stock != "" {
		if out.stock, err = strconv.Atoi(f.Stock); err != nil {
			return nil, ErrInvalidStock
		}
	}
	if out.price, err = optionalDecimal(f.OriginalPrice); err != nil {
		return nil, ErrInvalidAmount
	}
	if out.discount, err = optionalDecimal(f.Discount); err != nil {
		return nil, ErrInvalidAmount
	}
	if f.PointCost != "" {
		if out.points, err = strconv.ParseInt(f.PointCost, 10, 64); err != nil {
			return nil, ErrInvalidPoints
		}
	}

	specs, err := product.ParseSpecsText(f.Specs)
	if err != nil {
		return nil, apperror.Invalid(fmt.Sprintf("specs %v", err))
	}
	out.specs = make(map[string]string, len(specs))
	for k, v := range specs {
		if v != "" {
			out.specs[k] = v
		}
	}
	return out, nil
}

func (f productForm) createInput() (product.CreateInput, error) {
	p, err := f.parse()
	if err != nil {
		return product.CreateInput{}, err
	}
	categoryID, manufacturerID := f.CategoryID, f.ManufacturerID
	return product.CreateInput{
		Name:           f.Name,
		Type:           product.Type(f.Type),
		CategoryID:     &categoryID,
		ManufacturerID: &manufacturerID,
		Description:    f.Description,
		Stock:          p.stock,
		OriginalPrice:  p.price,
		Discount:       p.discount,
		Images:         f.imageList(),
		Specs:          p.specs,
		IsRedeemable:   f.IsRedeemable,
		PointCost:      p.points,
	}, nil
}

// updateInput sends every field; the form always shows the whole product.
func (f productForm) updateInput() (product.UpdateInput, error) {
	p, err := f.parse()
	if err != nil {
		return product.UpdateInput{}, err
	}
	name, typ := f.Name, product.Type(f.Type)
	categoryID, manufacturerID, description := f.CategoryID, f.ManufacturerID, f.Description
	images, redeemable := f.imageList(), f.IsRedeemable
	return product.UpdateInput{
		Name:           &name,
		Type:           &typ,
		CategoryID:     &categoryID,
		ManufacturerID: &manufacturerID,
		Description:    &description,
		Stock:          &p.stock,
		OriginalPrice:  &p.price,
		Discount:       &p.discount,
		Images:         &images,
		Specs:          &p.specs,
		IsRedeemable:   &redeemable,
		PointCost:      &p.points,
	}, nil
}

type formData struct {
	layoutData
	Action        string
	Editing       bool
	Form          productForm
	Types         []product.Type
	Suggestions   []string
	Categories    []*category.Category
	Manufacturers []*manufacturer.Manufacturer
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, action string, editing bool, form productForm, msg string) {
	ctx := r.Context()
	log := logger.FromCtx(ctx)

	categories, err := s.api.Categories(ctx)
	if err != nil {
		log.Warn("categories unavailable", zap.Error(err))
	}
	manufacturers, err := s.api.Manufacturers(ctx)
	if err != nil {
		log.Warn("manufacturers unavailable", zap.Error(err))
	}

	title := "New product"
	if editing {
		title = "Edit " + form.Name
	}
	data := formData{
		layoutData:    s.adminLayout(r, title),
		Action:        action,
		Editing:       editing,
		Form:          form,
		Types:         product.Types,
		Suggestions:   product.SpecSuggestions[product.Type(form.Type)],
		Categories:    categories,
		Manufacturers: manufacturers,
	}
	data.Error = msg
	s.views.Render(w, r, status, "admin_form", data)
}

func (s *Server) adminNewProduct(w http.ResponseWriter, r *http.Request) {
	typ := product.Type(r.URL.Query().Get("type"))
	if !typ.Valid() {
		typ = product.TypeCPU
	}
	form := productForm{Type: string(typ), Stock: "0", Discount: "0", Specs: suggestedSpecs(typ)}
	s.renderForm(w, r, http.StatusOK, "/admin/products", false, form, "")
}

// uploadImages pushes the files of the "files" field to the media proxy
// and appends their URLs to the form.
func (s *Server) uploadImages(r *http.Request, form *productForm) error {
	if r.MultipartForm == nil {
		return nil
	}
	for _, fh := range r.MultipartForm.File["files"] {
		if fh.Size > upload.MaxFileSize {
			return upload.ErrFileTooLarge
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		content, err := io.ReadAll(io.LimitReader(f, upload.MaxFileSize+1))
		f.Close()
		if err != nil {
			return err
		}
		if len(content) == 0 {
			continue
		}

		res, err := s.api.Upload(r.Context(), adminToken(r.Context()), fh.Filename, content)
		if err != nil {
			return err
		}
		form.addImage(res.URL)
	}
	return nil
}

func parseProductRequest(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

func (s *Server) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	const action = "/admin/products"

	if err := parseProductRequest(r); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	form := readProductForm(r)

	if err := s.uploadImages(r, &form); err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.renderForm(w, r, http.StatusBadRequest, action, false, form, messageOf(err))
		return
	}

	in, err := form.createInput()
	if err != nil {
		s.renderForm(w, r, http.StatusBadRequest, action, false, form, apperror.MessageOf(err))
		return
	}

	if _, err := s.api.CreateProduct(r.Context(), adminToken(r.Context()), in); err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.renderForm(w, r, http.StatusBadRequest, action, false, form, messageOf(err))
		return
	}
	http.Redirect(w, r, "/admin/products?notice=created", http.StatusSeeOther)
}

func (s *Server) adminEditProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.api.Product(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderForm(w, r, http.StatusOK, "/admin/products/"+url.PathEscape(id), true, formFromProduct(p), "")
}

func (s *Server) adminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action := "/admin/products/" + url.PathEscape(id)

	if err := parseProductRequest(r); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	form := readProductForm(r)

	if err := s.uploadImages(r, &form); err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.renderForm(w, r, http.StatusBadRequest, action, true, form, messageOf(err))
		return
	}

	in, err := form.updateInput()
	if err != nil {
		s.renderForm(w, r, http.StatusBadRequest, action, true, form, apperror.MessageOf(err))
		return
	}

	if _, err := s.api.UpdateProduct(r.Context(), adminToken(r.Context()), id, in); err != nil {
		if s.expired(w, r, err) {
			return
		}
		if IsStatus(err, http.StatusNotFound) {
			s.fail(w, r, err)
			return
		}
		s.renderForm(w, r, http.StatusBadRequest, action, true, form, messageOf(err))
		return
	}
	http.Redirect(w, r, "/admin/products?notice=updated", http.StatusSeeOther)
}

func (s *Server) adminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.api.DeleteProduct(r.Context(), adminToken(r.Context()), id); err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.fail(w, r, err)
		return
	}
	logger.FromCtx(r.Context()).Info("product deleted", zap.String("product_id", id))
	http.Redirect(w, r, "/admin/products?notice=deleted", http.StatusSeeOther)
}
